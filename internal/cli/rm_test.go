package cli_test

import (
	"os"
	"testing"

	"github.com/calvinalkan/urlaccess/internal/cli"
)

func Test_Rm_Removes_File_When_Exists(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("a.txt", "bye")

	c.MustRun("rm", "a.txt")

	if _, err := os.Stat(c.Path("a.txt")); !os.IsNotExist(err) {
		t.Errorf("a.txt should be gone, stat err=%v", err)
	}
}

func Test_Rm_Removes_Empty_Directory_When_Directory_Locator(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("put", "--dir", "d1")
	c.MustRun("put", "--dir", "d2")

	c.MustRun("rm", "d1/")
	c.MustRun("rm", "--dir", "d2")

	for _, name := range []string{"d1", "d2"} {
		if _, err := os.Stat(c.Path(name)); !os.IsNotExist(err) {
			t.Errorf("%s should be gone, stat err=%v", name, err)
		}
	}
}

func Test_Rm_Fails_And_Keeps_Directory_When_Not_Empty(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("d/keep.txt", "x")

	c.MustFail("rm", "d/")

	if got, want := c.ReadFile("d/keep.txt"), "x"; got != want {
		t.Errorf("content=%q, want=%q", got, want)
	}
}

func Test_Rm_Fails_When_File_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("rm", "ghost.txt")

	cli.AssertContains(t, stderr, "error:")
}

package cli_test

import (
	"testing"

	"github.com/calvinalkan/urlaccess/internal/cli"
)

func Test_Ls_Prints_Sorted_Names_When_Directory(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("d/b.txt", "")
	c.WriteFile("d/c.txt", "")
	c.WriteFile("d/a.txt", "")
	c.WriteFile("d/sub/nested.txt", "")

	// No trailing separator: ls treats its argument as a directory anyway.
	if got, want := c.MustRun("ls", "d"), "a.txt\nb.txt\nc.txt\nsub"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Ls_Prints_Nothing_When_Directory_Empty(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("put", "--dir", "empty")

	stdout, stderr, exitCode := c.Run("ls", "empty")

	if got, want := exitCode, 0; got != want {
		t.Fatalf("exitCode=%d, want=%d (stderr=%s)", got, want, stderr)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Ls_Fails_When_Target_Is_Regular_File(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("a.txt", "hello")

	stderr := c.MustFail("ls", "a.txt")

	cli.AssertContains(t, stderr, "is not a directory")
}

func Test_Ls_Fails_With_Not_Found_When_Directory_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("ls", "nope")

	cli.AssertContains(t, stderr, "resource not found")
}

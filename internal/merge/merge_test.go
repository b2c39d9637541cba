package merge

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name         string
		localPresent bool
		local        []byte
		remote       []byte
		want         Class
	}{
		{"absent", false, nil, []byte("a\n"), ClassAdd},
		{"empty", true, []byte(""), []byte("a\n"), ClassReplace},
		{"equal", true, []byte("a\n"), []byte("a\n"), ClassSame},
		{"equal-modulo-newline", true, []byte("a"), []byte("a\n"), ClassSame},
		{"differ", true, []byte("a\n"), []byte("b\n"), ClassUpdate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.localPresent, c.local, c.remote); got != c.want {
				t.Errorf("Classify() = %s, want %s", got, c.want)
			}
		})
	}
}

func TestMergeConflict(t *testing.T) {
	local := []byte("x\ny\nz\n")
	remote := []byte("x\nY\nz\n")
	want := "x\n<<<<<<< LOCAL\ny\n=======\nY\n>>>>>>> REMOTE\nz\n"

	got, conflicts := Merge(local, remote)
	if string(got) != want {
		t.Errorf("Merge() = %q, want %q", got, want)
	}
	if conflicts != 1 {
		t.Errorf("conflicts = %d, want 1", conflicts)
	}
}

func TestMergeInsertOnly(t *testing.T) {
	local := []byte("a\nb\n")
	remote := []byte("a\nb\nc\n")
	want := "a\nb\nc\n"

	got, conflicts := Merge(local, remote)
	if string(got) != want {
		t.Errorf("Merge() = %q, want %q", got, want)
	}
	if conflicts != 0 {
		t.Errorf("conflicts = %d, want 0", conflicts)
	}
}

func TestMergeIdentical(t *testing.T) {
	local := []byte("same\ncontent\n")
	got, conflicts := Merge(local, local)
	if string(got) != string(local) {
		t.Errorf("Merge(x, x) = %q, want %q", got, local)
	}
	if conflicts != 0 {
		t.Errorf("conflicts = %d, want 0", conflicts)
	}
}

func TestMergeMarkersPaired(t *testing.T) {
	local := []byte("one\ntwo\nthree\nfour\n")
	remote := []byte("one\nTWO\nthree\nFOUR\n")
	got, _ := Merge(local, remote)

	opens, closes, splits := 0, 0, 0
	for _, line := range splitLinesForTest(got) {
		switch line {
		case markerLocal:
			opens++
		case markerRemote:
			closes++
		case markerSplit:
			splits++
		}
	}
	if opens != closes || opens != splits {
		t.Errorf("unbalanced markers: open=%d split=%d close=%d", opens, splits, closes)
	}
}

func splitLinesForTest(b []byte) []string {
	return splitLines(b)
}

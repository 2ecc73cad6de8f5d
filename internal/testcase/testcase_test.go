package testcase

import "testing"

func TestCaseIDString(t *testing.T) {
	id := CaseID{Program: ProgramID{RelativePath: "dir/suite_test"}, Name: "case1"}
	if got, want := id.String(), "dir/suite_test:case1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestValidName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"case1", true},
		{"", false},
		{"a:b", false},
	}
	for _, c := range cases {
		if got := ValidName(c.name); got != c.want {
			t.Errorf("ValidName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

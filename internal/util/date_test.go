package util

import "testing"

func TestParseDayFirst(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "04/05/2026", want: "2026-05-04"},
		{input: "4/5/2026", want: "2026-05-04"},
		{input: "04-05-2026", want: "2026-05-04"},
		{input: "2026-05-04", want: "2026-05-04"},
		{input: "4 May 2026", want: "2026-05-04"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			parsed, err := ParseDayFirst(tc.input)
			if err != nil {
				t.Fatal(err)
			}
			if got := parsed.Format("2006-01-02"); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestParseDayFirstRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "not a date", "TBC"} {
		if _, err := ParseDayFirst(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

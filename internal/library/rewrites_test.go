package library

import "testing"

func TestApplyRewrites(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "parkinsons apostrophe",
			in:   "Parkinsons's disease study.pdf",
			want: "Parkinsons’s disease study.pdf",
		},
		{
			name: "wavelet dash",
			in:   "wavelet diffusion-a survey.pdf",
			want: "wavelet diffusion–a survey.pdf",
		},
		{
			name: "untouched",
			in:   "ordinary_paper.pdf",
			want: "ordinary_paper.pdf",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyRewrites(tc.in, DefaultRewrites); got != tc.want {
				t.Errorf("ApplyRewrites(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestApplyRewrites_NilMap(t *testing.T) {
	if got := ApplyRewrites("x.pdf", nil); got != "x.pdf" {
		t.Errorf("nil rewrites changed name: %q", got)
	}
}

package language

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"Japanese", Japanese, false},
		{"japanese", Japanese, false},
		{"ja", Japanese, false},
		{"English", English, false},
		{"en", English, false},
		{"Chinese", Chinese, false},
		{"zh-Hans", Chinese, false},
		{" Chinese ", Chinese, false},
		{"Korean", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDefaultFont(t *testing.T) {
	if f := English.DefaultFont(); f != "Arial" {
		t.Errorf("English font = %q", f)
	}
	if f := Japanese.DefaultFont(); f != "Meiryo UI" {
		t.Errorf("Japanese font = %q", f)
	}
	if f := Chinese.DefaultFont(); f != "Microsoft YaHei" {
		t.Errorf("Chinese font = %q", f)
	}
	if f := Language("Klingon").DefaultFont(); f != FallbackFont {
		t.Errorf("unknown language font = %q, want fallback", f)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var l Language
	if err := json.Unmarshal([]byte(`"Japanese"`), &l); err != nil {
		t.Fatal(err)
	}
	if l != Japanese {
		t.Errorf("got %q", l)
	}

	if err := json.Unmarshal([]byte(`"tlh"`), &l); err == nil {
		t.Error("expected error for unsupported language")
	}
}

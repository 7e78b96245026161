package password

import (
	"errors"
	"reflect"
	"testing"
)

func codes(vs []Violation) []Code {
	out := make([]Code, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func TestValidate_Table(t *testing.T) {
	cases := []struct {
		pw   string
		want []Code
	}{
		{"Abcdef1!", nil},
		{"abc", []Code{CodeMinLength, CodeUppercase, CodeDigit, CodeSymbol}},
		{"", []Code{CodeMinLength, CodeUppercase, CodeLowercase, CodeDigit, CodeSymbol}},
		{"ABCDEFGH1!", []Code{CodeLowercase}},
		{"abcdefgh1!", []Code{CodeUppercase}},
		{"Abcdefgh!", []Code{CodeDigit}},
		{"Abcdefgh1", []Code{CodeSymbol}},
		{"Abcdefgh1-", []Code{CodeSymbol}}, // '-' no está en el set
		{"Ab1!", []Code{CodeMinLength}},
		{"Ábcdéfgh1!", []Code{CodeUppercase}}, // clases ASCII
	}
	for _, tc := range cases {
		got := codes(Validate(tc.pw))
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Validate(%q) = %v, want %v", tc.pw, got, tc.want)
		}
	}
}

func TestValidate_EveryViolationAtMostOnceInFixedOrder(t *testing.T) {
	order := map[Code]int{CodeMinLength: 0, CodeUppercase: 1, CodeLowercase: 2, CodeDigit: 3, CodeSymbol: 4}
	inputs := []string{"", "a", "A", "1", "!", "aaaaaaaaaaaa", "AAAA1111", "!!!!!!!!", "aA1!", "aA1!aA1!"}
	for _, in := range inputs {
		seen := map[Code]bool{}
		last := -1
		for _, v := range Validate(in) {
			if seen[v.Code] {
				t.Fatalf("%q: duplicated %s", in, v.Code)
			}
			seen[v.Code] = true
			if order[v.Code] <= last {
				t.Fatalf("%q: out of order %s", in, v.Code)
			}
			last = order[v.Code]
		}
	}
}

func TestMessages(t *testing.T) {
	got := Messages(Validate("abcdefgh"))
	want := []string{
		"Password must contain at least 1 uppercase letter",
		"Password must contain at least 1 number",
		"Password must contain at least 1 special character",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	cfg := FastConfig()

	h, err := cfg.Hash("Abcdef1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ok, err := cfg.Verify(h, "Abcdef1!")
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = cfg.Verify(h, "Abcdef1?")
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}

	h2, _ := cfg.Hash("Abcdef1!")
	if h == h2 {
		t.Fatalf("salt must differ between hashes")
	}
}

func TestVerify_RejectsMalformed(t *testing.T) {
	cfg := FastConfig()
	for _, bad := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5a2V5"} {
		if _, err := cfg.Verify(bad, "x"); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("%q: expected ErrInvalidHash, got %v", bad, err)
		}
	}
	if _, err := cfg.Hash(""); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty")
	}
}

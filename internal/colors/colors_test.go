package colors

import "testing"

func TestColorizeRespectsToggle(t *testing.T) {
	prev := IsColorEnabled()
	defer SetColorEnabled(prev)

	SetColorEnabled(false)
	if got := Red("x"); got != "x" {
		t.Errorf("disabled Red = %q, want plain text", got)
	}
	if got := NodeID(7); got != "0007" {
		t.Errorf("disabled NodeID = %q, want 0007", got)
	}

	SetColorEnabled(true)
	if got := Green("ok"); got != BrightGreen+"ok"+ColorReset {
		t.Errorf("enabled Green = %q", got)
	}
}

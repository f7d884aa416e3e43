package validation

import "testing"

type slotFields struct {
	Date  string `validate:"date"`
	Time  string `validate:"clock"`
	Phone string `validate:"phone"`
}

func TestCustomTagsAccept(t *testing.T) {
	v := New()
	err := v.Struct(slotFields{Date: "2026-09-10", Time: "10:30", Phone: "+243810000000"})
	if err != nil {
		t.Fatalf("expected valid fields, got %v", err)
	}
}

func TestDateTagRejectsMalformed(t *testing.T) {
	v := New()
	for _, date := range []string{"10-09-2026", "2026/09/10", "2026-13-01", "tomorrow"} {
		err := v.Struct(slotFields{Date: date, Time: "10:30", Phone: "+243810000000"})
		if err == nil {
			t.Fatalf("expected %q to be rejected", date)
		}
	}
}

func TestClockTagRejectsMalformed(t *testing.T) {
	v := New()
	for _, clock := range []string{"25:00", "10:65", "10h30", "10:30:00"} {
		err := v.Struct(slotFields{Date: "2026-09-10", Time: clock, Phone: "+243810000000"})
		if err == nil {
			t.Fatalf("expected %q to be rejected", clock)
		}
	}
}

func TestPhoneTagRejectsMalformed(t *testing.T) {
	v := New()
	for _, phone := range []string{"12345", "phone", "+243 81 000", "++243810000000"} {
		err := v.Struct(slotFields{Date: "2026-09-10", Time: "10:30", Phone: phone})
		if err == nil {
			t.Fatalf("expected %q to be rejected", phone)
		}
	}
}

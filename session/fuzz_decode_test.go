package session

import "testing"

// FuzzSessionDecode exercises the binary session decoder with arbitrary inputs.
// Goal: no panics, graceful error handling.
func FuzzSessionDecode(f *testing.F) {
	sess := &Session{
		SessionID:  "sid-fuzz",
		UserID:     "user1",
		IssuedAt:   1700000000000,
		LastSeenAt: 1700000360000,
		Platform:   "ios",
	}
	encoded, err := Encode(sess)
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{1})
	f.Add([]byte{2, 0})
	f.Add([]byte{255, 255, 255})

	if len(encoded) > 4 {
		f.Add(encoded[:4])
	}
	if len(encoded) > 12 {
		f.Add(encoded[:12])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if s.UserID == "" {
			t.Fatal("decoded session without user id")
		}
		if s.SchemaVersion == CurrentSchemaVersion {
			if _, err := Encode(s); err != nil {
				t.Fatalf("re-encode failed: %v", err)
			}
		}
	})
}

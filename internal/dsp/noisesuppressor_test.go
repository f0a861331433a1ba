package dsp

import "testing"

func TestNoiseSuppressorNoopWhileDisabled(t *testing.T) {
	n := NewNoiseSuppressor()
	defer n.Close()

	buf := make([]float32, 960)
	for i := range buf {
		buf[i] = float32(i) / float32(len(buf))
	}
	original := append([]float32(nil), buf...)

	// Chain.Process gates on Enabled() before calling Process, so a
	// disabled suppressor must never see a frame in practice; calling it
	// directly here confirms Process itself stays inert for a freshly
	// constructed (disabled) suppressor, here also set to level zero.
	n.SetLevel(0)
	n.Process(buf)

	for i := range buf {
		if buf[i] != original[i] {
			t.Fatalf("sample[%d]: got %v, want %v (level 0 must be a no-op)", i, buf[i], original[i])
		}
	}
}

func TestNoiseSuppressorEnabledFlagRoundTrips(t *testing.T) {
	n := NewNoiseSuppressor()
	defer n.Close()

	if n.Enabled() {
		t.Fatal("Enabled() = true, want false by default")
	}
	n.SetEnabled(true)
	if !n.Enabled() {
		t.Fatal("Enabled() = false after SetEnabled(true)")
	}
}

func TestNoiseSuppressorProcessesFullFrame(t *testing.T) {
	n := NewNoiseSuppressor()
	defer n.Close()
	n.SetEnabled(true)
	n.SetLevel(1.0)

	buf := make([]float32, 960)
	for i := range buf {
		buf[i] = 0.01
	}

	n.Process(buf)

	for i, s := range buf {
		if s < -1 || s > 1 {
			t.Fatalf("sample[%d] = %v out of [-1,1] range after suppression", i, s)
		}
	}
}

func TestNoiseSuppressorCloseIsIdempotent(t *testing.T) {
	n := NewNoiseSuppressor()
	n.Close()
	n.Close()
}

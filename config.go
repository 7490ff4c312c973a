package intercom

// Config is the typed configuration object accepted at construction and
// at reload: fs, frame_size, and headroom_db. fs and frame_size must
// equal the core's construction-time constants on reload; headroom_db
// is always live-applied.
type Config struct {
	Fs         int
	FrameSize  int
	HeadroomDB float64
}

package intercom

import "errors"

// ErrConfigMismatch reports a reload whose fs or frame_size disagree
// with the core's construction-time constants. It is reported to the
// EventSink as a warning and does not abort the reload of headroom_db.
var ErrConfigMismatch = errors.New("reload fs/frame_size do not match core constants")

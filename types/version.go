package types

// Version is the canonical project version.
// The driver binary, the replay tool, and the session summary artifact
// share this version (lockstep versioning).
const Version = "0.4.0"

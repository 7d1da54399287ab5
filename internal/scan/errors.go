package scan

import "errors"

// errForensicMountUnavailable is recorded as a non-fatal discovery error
// when a forensic image container is found but no Mounter was configured.
var errForensicMountUnavailable = errors.New("forensic image mounting is not configured")

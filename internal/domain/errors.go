package domain

import "errors"

// Sentinel error kinds surfaced to the UI layer. Wrap with fmt.Errorf("%w")
// to attach context; check with errors.Is.
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrCatalogParse       = errors.New("malformed catalog")
	ErrNoValidDrive       = errors.New("no valid boot drive found")
	ErrDriveNotWritable   = errors.New("boot drive is not writable")
	ErrIntegrityMismatch  = errors.New("download integrity mismatch")
	ErrDownloadCancelled  = errors.New("download cancelled")
	ErrInstallIO          = errors.New("install failed")
	ErrRegistryCorrupt    = errors.New("registry file corrupt")
	ErrRegistryWrite      = errors.New("registry write failed")
	ErrPluginNotFound     = errors.New("plugin not found")
	ErrRangeNotSupported  = errors.New("server does not support range requests")
)

// StatusError is the structured form handed to the presentation layer so it
// can offer "retry" for transient failures and "details" for permanent ones.
type StatusError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *StatusError) Error() string { return e.Message }

// DescribeError maps an engine error onto its user-facing status form.
func DescribeError(err error) *StatusError {
	if err == nil {
		return nil
	}

	kind := "Internal"
	retryable := false

	switch {
	case errors.Is(err, ErrNetworkUnavailable):
		kind, retryable = "NetworkUnavailable", true
	case errors.Is(err, ErrCatalogParse):
		kind = "CatalogParseError"
	case errors.Is(err, ErrNoValidDrive):
		kind, retryable = "NoValidDrive", true
	case errors.Is(err, ErrDriveNotWritable):
		kind = "DriveNotWritable"
	case errors.Is(err, ErrIntegrityMismatch):
		kind, retryable = "DownloadIntegrityMismatch", true
	case errors.Is(err, ErrDownloadCancelled):
		kind = "DownloadCancelled"
	case errors.Is(err, ErrInstallIO):
		kind = "InstallIOError"
	case errors.Is(err, ErrRegistryCorrupt):
		kind = "RegistryCorrupt"
	case errors.Is(err, ErrRegistryWrite):
		kind, retryable = "RegistryWriteFailed", true
	case errors.Is(err, ErrPluginNotFound):
		kind = "PluginNotFound"
	}

	return &StatusError{Kind: kind, Message: err.Error(), Retryable: retryable}
}

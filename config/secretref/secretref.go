// Package secretref resolves the value-source prefixes spec.md §6 allows
// for mediator_did, mediator_secrets, and jwt_authorization_secret:
// did://, file://, aws_secrets://, aws_parameter_store://, string://,
// hostname://. The prefix vocabulary itself is not fully enumerated in
// spec.md; the remaining forms are recovered from
// original_source/affinidi-messaging-mediator/src/common/config.rs.
package secretref

import (
	"fmt"
	"os"
	"strings"

	"github.com/sage-x-project/didmediator/errs"
)

// Resolve dereferences a value-source reference to its literal content.
// hostVal is substituted for the "hostname://" scheme (the local
// hostname, used by streaming.uuid to derive a stable per-instance id).
func Resolve(ref string, hostVal string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "did://"):
		return strings.TrimPrefix(ref, "did://"), nil
	case strings.HasPrefix(ref, "string://"):
		return strings.TrimPrefix(ref, "string://"), nil
	case strings.HasPrefix(ref, "hostname://"):
		if hostVal != "" {
			return hostVal, nil
		}
		h, err := os.Hostname()
		if err != nil {
			return "", errs.New(errs.ConfigError, "resolve hostname:// reference", err)
		}
		return h, nil
	case strings.HasPrefix(ref, "file://"):
		path := strings.TrimPrefix(ref, "file://")
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errs.New(errs.ConfigError, fmt.Sprintf("read file reference %q", path), err)
		}
		return string(data), nil
	case strings.HasPrefix(ref, "aws_secrets://"):
		return "", errs.New(errs.ConfigError, "aws_secrets:// backend requires AWS credentials not configured in this deployment", nil)
	case strings.HasPrefix(ref, "aws_parameter_store://"):
		return "", errs.New(errs.ConfigError, "aws_parameter_store:// backend requires AWS credentials not configured in this deployment", nil)
	default:
		// Bare values (no recognized scheme) pass through unchanged,
		// matching the original's permissive fallback.
		return ref, nil
	}
}

package emlarchive

import (
	"fmt"
	"strings"
)

// EnvelopeMarker separates the executable prelude from the MIME message. It
// is a shell comment, and the prelude exits before reaching it.
const EnvelopeMarker = "#==== emlapp envelope: MIME message follows ===="

const mimeVersionPrefix = "MIME-Version:"

const defaultPrelude = `#!/bin/sh
# %s: self-contained web application.
#
# This file is both a shell script and a MIME message. Mail clients show the
# application files as attachments; the shell stops before reaching them.
usage="usage: sh $0 [browse | extract [dir] | run [port] | info | help]"
action="${1:-browse}"
[ "$#" -gt 0 ] && shift
case "$action" in
browse | extract | run | info)
	if command -v emlapp >/dev/null 2>&1; then
		exec emlapp "$action" "$0" "$@"
	fi
	echo "emlapp is not installed, open this file in a mail client instead" >&2
	exit 127
	;;
help | -h | --help)
	echo "$usage"
	exit 0
	;;
*)
	echo "unknown action: $action" >&2
	echo "$usage" >&2
	exit 2
	;;
esac
exit 0
`

// DefaultPrelude returns a POSIX shell launcher for an application that
// delegates to the emlapp command and exits before the envelope.
func DefaultPrelude(appName string) string {
	return fmt.Sprintf(defaultPrelude, singleLine(appName))
}

// ValidatePrelude rejects a prelude that would be mistaken for the envelope.
func ValidatePrelude(prelude string) error {
	for i, line := range strings.Split(prelude, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, mimeVersionPrefix) {
			return fmt.Errorf("%w: line %d starts with %q", ErrInvalidPrelude, i+1, mimeVersionPrefix)
		}
		if line == EnvelopeMarker {
			return fmt.Errorf("%w: line %d is the envelope marker", ErrInvalidPrelude, i+1)
		}
	}
	return nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

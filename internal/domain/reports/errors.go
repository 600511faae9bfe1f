package reports

import "errors"

// ErrNotFound covers both a missing report and a report owned by someone
// else; the two cases are deliberately indistinguishable to callers.
var ErrNotFound = errors.New("report not found")

// ErrValidation indicates malformed client-supplied input. Oracle output is
// never rejected with this error; it degrades via NormalizeAnalysis instead.
var ErrValidation = errors.New("validation error")

// ErrUnparseable: the oracle returned text that had to be structured JSON
// (comparison, translation) but was not. Report creation never returns this;
// it degrades instead.
var ErrUnparseable = errors.New("unparseable oracle response")

// Package stash is a thread-safe structured logging pipeline that
// collects everything belonging to one unit of work - messages, fields,
// tags, errors - into a single buffered event and ships it through
// configurable flows of filters, encoders and adapters.
//
// # Quick start
//
//	logger, err := stash.DefaultConfig().Build(nil)
//	if err != nil {
//	    panic(err)
//	}
//	defer logger.Close()
//
//	logger.Info("service started")
//	logger.Fields().Set("port", 8080)
//
// # Buffered request logging
//
// WithBuffer scopes a buffer to one request so all of its messages and
// fields leave as one event:
//
//	err := logger.WithBuffer(func(b *stash.Buffer) error {
//	    b.Tags().Add("api")
//	    b.Fields().Set("path", r.URL.Path)
//	    b.AddMessage(stash.NewMessage(stash.SeverityInfo, "handled"))
//	    return nil
//	})
//
// # Pipeline shape
//
// A Buffer composes an Event: its fields, a sorted tag list, all message
// texts concatenated in order, plus the reserved @timestamp and @version
// fields. The event fans out to one or more flows; each flow runs its
// filter chain (which may mutate or drop the event), encodes the result
// (JSON, key=value, plain message) and writes it through an adapter
// (file with rotation support, arbitrary io.Writer, zerolog, callback).
//
// The field names "message", "tags", "@timestamp" and "@version" are
// reserved for the buffer itself; writing them through Fields fails
// with ErrForbiddenField.
//
// All containers are safe for concurrent use. Values stored in fields
// are normalized to a small JSON-safe tree (strings, int64, float64,
// bool, nil, nested containers) at insertion time, so encoding can never
// fail on exotic types.
package stash

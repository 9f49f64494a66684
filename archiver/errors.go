package archiver

import "errors"

var (
	// ErrRateLimited is returned by a Provider when the archiving service throttles the client.
	ErrRateLimited = errors.New("archive provider rate limited the request")

	// ErrProvider wraps any other failure of the archiving provider.
	ErrProvider = errors.New("archive provider failed")

	// ErrArchiveURLSet is returned by a Store when the record already holds an archive URL.
	ErrArchiveURLSet = errors.New("archive url already set")
)

package config

const (
	// MaxDocumentTypeLength bounds document type identifiers. Types are
	// short slugs (hitech, mmis); anything longer is a client bug.
	MaxDocumentTypeLength = 64

	// MaxCommitMessageLength bounds commit messages. Limited to 500 for
	// reasonable UX: messages should summarize, not narrate.
	MaxCommitMessageLength = 500

	// MaxAuthorLength bounds author names on commits and reverts.
	MaxAuthorLength = 255
)

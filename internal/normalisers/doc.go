// Package normalisers turns study material files into the plain text the
// retrieval engine ingests. Each sub-package handles one format; the
// Registry picks one by file extension.
package normalisers

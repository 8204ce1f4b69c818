// Package printing contains the document layout domain.
// It resolves paper geometry, measures table rows, plans how rows flow across
// pages and tracks the upload state of finished documents. It has no
// knowledge of the drawing backend.
package printing

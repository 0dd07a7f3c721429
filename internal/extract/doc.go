// Package extract provides the default HTML content extractor and the
// text normalization used for duplicate-content detection.
package extract

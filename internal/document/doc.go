// Package document normalizes announcement files into addressable token
// sequences for template extraction.
//
// PDF text is pulled from pdfcpu content streams line by line, Excel workbooks
// are read cell by cell via excelize, and CSV files via encoding/csv. Every
// token keeps its page/row/column location so extracted values can be traced
// back to the source for human review. Normalization is pure: the same input
// bytes always produce a structurally identical Document.
package document

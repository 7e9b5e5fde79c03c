// Package report renders scan reports for people and machines.
//
// Every renderer consumes a *scan.Report and writes to an io.Writer. Finding
// fields echo page content, so the HTML renderer relies on html/template
// escaping and the Markdown renderer escapes table and inline syntax.
package report

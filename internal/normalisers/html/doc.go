// Package html extracts the readable text of saved web pages, such as
// lecture notes exported from a course site.
package html

// Package cookiefile reads session credentials from a Netscape-format
// cookies.txt export and watches the file for changes.
//
// Each non-comment line holds seven tab-separated fields:
//
//	domain  include_subdomains  path  secure  expiry  name  value
//
// Lines prefixed with "#HttpOnly_" are HTTP-only cookies. An expiry of 0
// marks a session cookie.
package cookiefile

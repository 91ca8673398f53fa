// Package calendar generates partition boundaries for day, month, and
// year periods. All arithmetic is done in UTC so boundaries are stable
// across machines and daylight-saving transitions.
package calendar

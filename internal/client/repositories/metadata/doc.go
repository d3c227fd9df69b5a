// Package metadata stores small named values (session token, user name, push
// bookkeeping markers) in the metadata table of the local database.
//
// Values are opaque bytes. A missing key reads as (nil, nil) so callers can
// treat "absent" and "empty" alike.
package metadata

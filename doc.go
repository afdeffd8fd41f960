// Package espacemembre plugs the Espace Membre directory into an email
// (magic link) sign-in flow as the source of truth for identities.
//
// Sign-in identifiers are directory usernames, not email addresses. Three
// decorators translate between the two:
//
//   - ProviderWrapper wraps an email provider so verification requests are
//     delivered to the member's contact address and identifiers are
//     normalized as usernames.
//   - AdapterWrapper wraps a persistence adapter so created users carry the
//     directory name, contact email and avatar, and username lookups resolve
//     to the matching stored user.
//   - CallbacksWrapper wraps the sign-in and JWT callbacks so unknown or
//     inactive members are rejected and the directory record is available
//     when the token is derived.
//
// Contact address:
//   - A member's delivery email is the primary email when
//     communication_email is "primary" and the secondary email otherwise.
//     client.Member.DeliveryEmail is the only place this rule lives.
//
// Errors:
//   - Missing required input fails with a configuration error (see
//     IsConfigError). Directory failures are *client.RequestError values; a
//     404 on a member lookup is a *client.MemberNotFoundError. Only the
//     sign-in callback turns a lookup failure (not found) into a decision,
//     every other call site returns the error to the caller.
//
// New wires everything from a Config.
package espacemembre

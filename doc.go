// Package accounts implements the Swaptrix user-account service core:
// registration with email verification, password login with JWT issuance,
// and role-gated admin management of accounts.
//
// Verification flow:
//   - Register mints a short-lived verification token bound to the email and
//     persists the exact token string on the unverified account. Delivery of
//     the verification link is best effort; account creation never fails on
//     mailer errors.
//   - VerifyEmail consumes the token exactly once: the presented string must
//     decode, match the stored column, and belong to a not-yet-verified
//     account. The column is cleared in the same update that flips the flag.
//
// Tokens are stateless HS256 JWTs; possession is validity until expiry. There
// is no server-side revocation list.
package accounts

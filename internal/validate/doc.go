// Package validate turns raw extraction results into typed, rule-applied
// records with an attached issue list.
//
// Validation runs in a fixed order: type coercion, required-field checks,
// template-declared business rules, then the duplicate check against the
// accepted-records store. Warnings never block a record; a single error-level
// issue makes it ineligible for submission.
package validate

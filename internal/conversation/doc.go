// Package conversation models interview conversations as durable per-user
// documents and enforces their lifecycle rules.
//
// Two conversation types exist. The onboarding conversation is a singleton
// per user (document id "onboarding") that moves from in_progress to
// complete when the user approves a structured summary of the interview;
// completion also flips the externally-owned onboarding flag on the user's
// profile. Task conversations require completed onboarding, stay active
// for their whole life, and are the only kind that can be deleted.
//
// Message appends follow one protocol for both types: load the document,
// admit any attachments, append the user message, save, hand the full turn
// history to the model-calling collaborator, append the reply, save again.
// The intermediate save makes the user's input durable before the external
// call.
//
// Storage is whole-document read-modify-write through the docstore
// package. Two concurrent appends to the same conversation can race
// between load and save; the last save wins and the other party's exchange
// is silently lost. This is an accepted limitation of the storage model,
// not a designed guarantee.
package conversation

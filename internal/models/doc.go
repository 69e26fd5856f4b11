// Package models defines the wire types exchanged with the learning-pathway API.
//
// The types mirror the server's JSON schemas:
//   - [User] : identity returned by /users/me
//   - [Pathway], [Topic] : a generated curriculum and its ordered topics
//   - [PathwayStatus] : completion statistics polled by the status poller
//   - [ChatMessage], [ChatReply] : retrieval chat exchanges
//   - [QuizRequest], [Quiz] : generated quizzes
//
// Request types implement [Validator] so obviously bad input is rejected
// before it costs a round trip.
package models

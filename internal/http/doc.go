// Package http exposes the room booking API over HTTP.
//
// Every route except GET /healthz requires an `Authorization: Bearer <token>`
// header carrying an HS256 JWT whose `sub` claim is the user ID and whose
// `roles` claim lists the caller's roles.
//
//   - GET /rooms, POST /rooms, GET /rooms/{roomID}, PUT /rooms/{roomID},
//     DELETE /rooms/{roomID}: room catalog endpoints exchanging the `roomDTO`
//     payload defined in room_handler.go.
//   - GET /rooms/{roomID}/availability?start=<RFC3339>&duration=<duration>:
//     reports whether the room is free and lists conflicting meetings.
//   - GET /meetings?room_id=&from=&to=&include_deleted=, POST /meetings,
//     GET /meetings/{meetingID}, DELETE /meetings/{meetingID}: meeting
//     endpoints exchanging the `meetingDTO` payload defined in
//     meeting_handler.go.
//   - POST /meetings/{meetingID}/approve, POST /meetings/{meetingID}/reject:
//     the administrator review workflow.
//   - PUT /meetings/{meetingID}/invitees/{userID}: records an invitee's
//     answer. Body: {"status":"approved"|"rejected"}.
//
// Timestamps in requests must carry an explicit UTC offset. Responses render
// instants in UTC and repeat them in the configured display zone under the
// `*_local` keys.
package http

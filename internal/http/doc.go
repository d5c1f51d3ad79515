// Package http provides HTTP handlers and middleware for the project tracker API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"username","password"}. The token is
//     returned in the body, surfaced via the `X-Session-Token` header, and stored in a
//     `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the Authorization
//     header or session cookie. Returns 204 No Content and clears the cookie.
//   - POST /users, GET /users/{id}: administrator controlled account management.
//   - GET /technicians, GET /technicians/{id}/stages, GET /technicians/{id}/tasks:
//     technician directory and per-technician work boards.
//   - GET/POST /projects, GET/PUT/DELETE /projects/{id}, GET /projects/{id}/stages,
//     POST /projects/{id}/stages, GET /projects/{id}/log, GET /projects/{id}/tasks:
//     project management including the merged comment and bitácora history.
//   - GET/PUT/DELETE /stages/{id}, GET/PUT /stages/{id}/assignment,
//     GET /stages/{id}/comments, POST /stages/{id}/tasks,
//     POST /stages/{id}/timer/start, POST /stages/{id}/timer/stop,
//     GET /stages/{id}/timer, GET /stages/{id}/hours?user_id=: stage level
//     operations including the work timer and the per-technician hour total.
//   - GET /assignments, POST /comments, GET /timelogs/history, GET /audit,
//     GET/PUT/DELETE /tasks/{id}: flat listings and task CRUD.
//   - GET /suggestions, GET /suggestions/short-tasks: the availability matcher.
//   - GET /schedule/day|week|month?date=YYYY-MM-DD: calendar views.
//   - GET /statistics/summary, GET /statistics/hours, GET /statistics/delay-reasons,
//     GET /dashboard/alerts: reporting.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http

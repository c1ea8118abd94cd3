// Package arbox provides an HTTP client for the Arbox mobile booking API.
//
// # Overview
//
// The client wraps five calls against https://apiappv2.arboxapp.com:
//
//   - POST /api/v2/user/login: exchange email and password for a token pair
//   - GET /api/v2/user/profile: fetch the signed-in user's profile
//   - POST /api/v2/schedule/betweenDates: list classes for a box
//   - POST /api/v2/scheduleUser/insert: book a class
//   - POST /api/v2/scheduleUser/delete: cancel a booking
//
// Every request carries the same fixed header set the Android app sends.
// Several of those header names are lower-case (accesstoken, refreshtoken,
// referername, version, whitelabel, accept) and the server expects them that
// way, so they are written into the header map directly instead of through
// http.Header.Set.
//
// # Usage
//
//	client, err := arbox.NewClient("", arbox.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	tokens, err := client.Login(ctx, arbox.Credentials{Email: email, Password: password})
//	if err != nil {
//		return err
//	}
//	raw, err := client.ScheduleBetweenDates(ctx, tokens, arbox.ScheduleQuery{
//		From:          day,
//		To:            day.Add(24*time.Hour - time.Millisecond),
//		LocationBoxID: 12,
//		BoxID:         34,
//	})
//
// Session holds the current token pair for callers that do not want to pass
// it around.
//
// # Errors
//
// Each call returns the raw JSON body of a 200 response or an error:
//
//   - ErrNotAuthenticated: Profile and ScheduleBetweenDates return it before
//     sending anything when required tokens are missing. BookLesson and
//     CancelBooking have no such check and always reach the server.
//   - *APIError: any status other than 200. The message is
//     "<op> failed: <status> <body>" and Body keeps the raw response text.
//   - "execute request: ..." for transport failures.
//   - "decode response: ..." when a 200 body is not JSON.
//
// Login tolerates a 200 response without token keys and returns an empty
// pair. Nothing is retried.
package arbox

/*
Package planetsdk is the client SDK for the Planet habit-tracking API.

# Overview

Planet users receive daily quest suggestions, approve one, complete it with
photographic evidence and climb monthly tiers. The SDK wraps every endpoint
the mobile client uses behind one request wrapper, so header handling,
timeouts and error classification are identical for all resources.

# Client vs Session

  - Client: performs requests. Authenticated calls read the bearer token
    from device storage on every request.
  - Session: the process-wide view of who is signed in. It is restored from
    storage once and updated on sign in, sign out and profile changes.

Create a client over any key-value store and restore the session:

	client := planetsdk.NewClient("http://planet.myunghyun.me", store)
	session, err := client.RestoreSession(ctx)

	user, err := session.SignIn(ctx, planetsdk.SignInRequest{
		Email:    "user@example.com",
		Password: "secret",
	})

	quest, err := client.TodayQuest(ctx) // nil, nil when there is no quest yet

# Errors

Every failure from a request is an *APIError classified by Kind:

  - KindTimeout: the per-request timeout fired or the context was cancelled
  - KindNetwork: the HTTP transport failed
  - KindHTTP: the server answered with a non-2xx status
  - KindNotAuthenticated: an authenticated call was made with no stored token
  - KindUnknown: anything else, e.g. an undecodable response

Sentinels work with errors.Is:

	if errors.Is(err, planetsdk.ErrTimeout) {
		// retry later
	}

	if planetsdk.IsStatus(err, http.StatusForbidden) {
		// not allowed
	}

UserMessage turns any error into a short message fit for an end user.

# Retries

The SDK never retries. Retry policy belongs to the caller's cache layer.
*/
package planetsdk

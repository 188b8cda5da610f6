// Package grokit is a Go client for the Grok chat and image-generation API
// served behind x.com's web endpoints.
//
// The API is the one the web app uses. It is undocumented and authenticates
// with the browser session cookies auth_token and ct0.
//
// # Quick Start
//
//	client, err := grokit.FromEnv() // X_AUTH_TOKEN, X_CSRF_TOKEN
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Generate(ctx, grokit.NewGenerateRequest("Hello!"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.ResponseText)
//
// # Conversations
//
// The service keeps no context between requests: every turn resends the whole
// history. Thread the conversation id and [History] of one result into the
// next request:
//
//	res2, err := client.Generate(ctx, grokit.NewGenerateRequest("And in French?").
//	    WithConversationID(res.ConversationID).
//	    WithHistory(res.History))
//
// A request without a History starts from a new empty one. A request with a
// History appends to it in place, even when the turn later fails.
//
// # Images
//
// Generated images arrive mid-stream. [TurnResult.Attachments] holds their
// download URLs; fetch one with [Client.DownloadAttachment]. To edit an
// image, attach it and enable image edit:
//
//	req := grokit.NewGenerateRequest("Make the sky purple").
//	    WithAttachments("https://example.com/photo.jpg").
//	    WithImageEdit(true)
//
// Edit sources are fitted onto a 1024x768 canvas by the configured
// [ImageCodec] before upload.
//
// # Streaming
//
// [Client.StreamTurn] returns events as they arrive:
//
//	stream, err := client.StreamTurn(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for {
//	    ev, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    if ev.Kind == grokit.EventContent {
//	        fmt.Print(ev.Content)
//	    }
//	}
//	res := stream.Result()
//
// # Error Handling
//
// Errors are [*Error] values with a [ErrorCode]:
//
//	res, err := client.Generate(ctx, req)
//	var gErr *grokit.Error
//	if errors.As(err, &gErr) && gErr.Code == grokit.ErrTurn {
//	    log.Printf("turn rejected with HTTP %d: %s", gErr.StatusCode, gErr.Body)
//	}
//
// A reply the service cut short for quota reasons is not an error: it is
// reported by [TurnResult.Limited].
package grokit

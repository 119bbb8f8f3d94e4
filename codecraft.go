// Package codecraft turns a natural-language description of a UI
// component into a single self-contained HTML file generated by a
// Gemini model.
//
// The package provides the generation client: it builds the model
// instruction, issues exactly one model call per request and unwraps the
// first fenced code block from the free-text reply. Admission control,
// validation and the request state machine live in the ratelimit,
// validate and orchestrator packages.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client := codecraft.NewFromConfig(cfg, zerolog.Nop())
//	defer client.Close()
//
//	code, err := client.Generate(ctx, "A pricing card with three tiers", validate.HTMLTailwind)
//	if err != nil {
//		log.Fatal(err) // err is a *codecraft.Error with a user-safe message
//	}
//	fmt.Println(code)
package codecraft

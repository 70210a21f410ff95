// Package signup runs the registration submission: it validates the form,
// shows the spinner, asks the account provider to create the account and
// publishes one outcome for the mounted view.
//
// # Basic Usage
//
//	workflow := signup.NewWorkflow(provider,
//		signup.WithTimeout(15*time.Second),
//		signup.WithRedirectURL("https://example.fi/auth/callback"),
//	)
//
//	mount := signup.NewMount(registerform.NewForm(nil), uiflags.NewStore())
//	outcome, err := workflow.Submit(ctx, mount)
//	if err != nil {
//		// validation failed, a submission is already in flight,
//		// or the view was unmounted while waiting
//	}
//
// # Outcomes
//
// A mount starts Idle and moves to Pending when a valid submission reaches
// the provider. Pending resolves to Success or Error, both terminal for the
// mount. Provider failures never escape Submit: a taken email marks the email
// field and shows the duplicate banner, everything else shows the generic
// banner and is logged.
package signup

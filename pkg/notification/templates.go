package notification

// ConfirmationTemplate is mailed after a local signup. Data keys: Firstname, Link.
var ConfirmationTemplate = NoticeTemplate{
	Subject: "Vahvista sähköpostiosoitteesi",
	Text: `Hei {{.Firstname}},

vahvista tilisi avaamalla alla oleva linkki:

{{.Link}}

Jos et rekisteröitynyt, voit jättää tämän viestin huomiotta.
`,
	Html: `<p>Hei {{.Firstname}},</p>
<p>vahvista tilisi avaamalla alla oleva linkki:</p>
<p><a href="{{.Link}}">Vahvista sähköposti</a></p>
<p>Jos et rekisteröitynyt, voit jättää tämän viestin huomiotta.</p>
`,
}

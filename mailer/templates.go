package mailer

import "html/template"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Welcome to QuickMart, {{.FirstName}}!</h2>
  <p>Your account is ready. Head over to your profile to finish setting it up.</p>
  <p><a href="{{.URL}}">Go to my profile</a></p>
  <p>Happy shopping,<br/>The QuickMart team</p>
</div>
`))

var resetTemplate = template.Must(template.New("reset").Parse(`
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Hi {{.FirstName}},</h2>
  <p>Forgot your password? Click the link below to choose a new one.
     The link expires in 10 minutes.</p>
  <p><a href="{{.URL}}">Reset my password</a></p>
  <p>If you didn't request this, you can safely ignore this email.</p>
</div>
`))

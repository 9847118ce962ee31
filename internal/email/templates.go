package email

import (
	"bytes"
	"fmt"
	"html/template"
)

const otpHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <div style="max-width: 480px; margin: 0 auto; padding: 24px;">
    <h2>{{.Title}}</h2>
    <p>Hola {{.Name}},</p>
    <p>{{.Intro}}</p>
    <p style="font-size: 32px; letter-spacing: 6px; font-weight: bold; text-align: center;">{{.Code}}</p>
    <p>El código vence en {{.TTLMins}} minutos. Si no fuiste vos, ignorá este correo.</p>
  </div>
</body>
</html>`

var otpTemplate = template.Must(template.New("otp").Parse(otpHTML))

type otpTemplateData struct {
	Title   string
	Name    string
	Intro   string
	Code    int
	TTLMins int
}

func renderOTP(msg OTPMessage) (subject, htmlBody, textBody string, err error) {
	data := otpTemplateData{
		Title:   "Verificá tu cuenta",
		Name:    msg.Name,
		Intro:   "Usá este código para verificar tu cuenta:",
		Code:    msg.Code,
		TTLMins: msg.TTLMins,
	}
	subject = "Tu código de verificación"
	if msg.Reset {
		data.Title = "Recuperá tu contraseña"
		data.Intro = "Usá este código para restablecer tu contraseña:"
		subject = "Tu código de recuperación"
	}
	if data.Name == "" {
		data.Name = msg.To
	}

	var buf bytes.Buffer
	if err = otpTemplate.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("email: render: %w", err)
	}
	textBody = fmt.Sprintf("Hola %s,\n\n%s\n\n%d\n\nEl código vence en %d minutos.",
		data.Name, data.Intro, data.Code, data.TTLMins)
	return subject, buf.String(), textBody, nil
}

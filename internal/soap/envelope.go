package soap

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Namespaces of the request envelope.
const (
	EnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	TempuriNS  = "http://tempuri.org/"
)

// Credentials is the fixed user id / password pair the service expects in
// every request body.
type Credentials struct {
	UserID   string
	Password string
}

// EscapeCDATA splits every "]]>" in s across two CDATA sections so s can be
// embedded in <![CDATA[...]]> without closing it early.
func EscapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

// BuildEnvelope wraps payload in a SOAP envelope calling op.Method:
//
//	<tem:Method>
//	   <tem:v_sInputXML><![CDATA[payload]]></tem:v_sInputXML>
//	   <tem:v_sUserId>...</tem:v_sUserId>
//	   <tem:v_sPassword>...</tem:v_sPassword>
//	</tem:Method>
func BuildEnvelope(payload string, op Operation, creds Credentials) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<soapenv:Envelope xmlns:soapenv="` + EnvelopeNS + `" xmlns:tem="` + TempuriNS + `">` + "\n")
	b.WriteString("   <soapenv:Header/>\n")
	b.WriteString("   <soapenv:Body>\n")
	b.WriteString("      <tem:" + op.Method + ">\n")
	b.WriteString("         <tem:v_sInputXML><![CDATA[" + EscapeCDATA(payload) + "]]></tem:v_sInputXML>\n")
	b.WriteString("         <tem:v_sUserId>" + escapeText(creds.UserID) + "</tem:v_sUserId>\n")
	b.WriteString("         <tem:v_sPassword>" + escapeText(creds.Password) + "</tem:v_sPassword>\n")
	b.WriteString("      </tem:" + op.Method + ">\n")
	b.WriteString("   </soapenv:Body>\n")
	b.WriteString("</soapenv:Envelope>")
	return b.String()
}

func escapeText(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

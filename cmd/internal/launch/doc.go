// Package launch implements the signed-launch flow: the signing policy
// consulted during request verification, claim extraction from the launch
// form, user provisioning, destination routing, and the HTTP surface
// (POST /launch, GET /config.xml, the admin consumer registry endpoint).
//
// The flow for a launch request is strictly staged: any pre-existing
// session is terminated, the request signature and replay freshness are
// verified, the external identity is provisioned or fetched, a destination
// is resolved from the routing rules, and only then is a session started.
// Every failure short-circuits to the configured failure destination with
// no session established.
package launch

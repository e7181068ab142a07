// Package secrets resolves secret references in configuration values.
//
// Connection URIs carrying credentials can be written as references
// instead of literals:
//
//	storage:
//	  mongo:
//	    member_uri: ${secret:mongo-member-uri}
//
// A reference is looked up in each provider in order:
//   - EnvProvider reads PRIVACYVIZ_SECRET_MONGO_MEMBER_URI
//   - FileProvider reads <dir>/mongo-member-uri, as mounted by Kubernetes
//
// Resolved values are never logged.
package secrets

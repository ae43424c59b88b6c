package http

// Exported for tests in the http_test package.
var RegisterStatic = registerStatic

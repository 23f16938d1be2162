// Package permissions answers whether the process may contact a set of
// origins. Grants come from the config file and from runtime grants stored in
// the database; both use browser-style match patterns such as
// "*://script.google.com/*" or the special "<all_urls>".
package permissions

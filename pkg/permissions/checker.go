// Package permissions provides utilities for checking permission sets
// against required permissions with support for wildcards.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "planning.*")
//   - "resource.action" - Specific action (e.g., "planning.read")
package permissions

import (
	"strings"
)

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "planning.*" matches "planning.read", "planning.write", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true // No permission required
	}

	for _, p := range userPerms {
		if p == "*" {
			return true // Full admin access
		}
		if p == required {
			return true // Exact match
		}
		// Check wildcard patterns like "planning.*"
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the user has all of the required permissions.
func HasAllPermissions(userPerms []string, required []string) bool {
	for _, req := range required {
		if !HasPermission(userPerms, req) {
			return false
		}
	}
	return true
}

// MergePermissions merges multiple permission sets, removing duplicates.
// Useful for combining role permissions with per-user overrides.
func MergePermissions(sets ...[]string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, set := range sets {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	return result
}

// RemovePermissions removes specific permissions from a set.
// Useful for applying permission revocations.
func RemovePermissions(perms []string, toRemove []string) []string {
	removeSet := make(map[string]bool)
	for _, p := range toRemove {
		removeSet[p] = true
	}

	var result []string
	for _, p := range perms {
		if !removeSet[p] {
			result = append(result, p)
		}
	}

	return result
}

// KnownPermissions is the list of standard permissions used in Planora.
// This can be used for validation and autocomplete.
var KnownPermissions = []string{
	// Planning permissions
	"planning.read",
	"planning.write",
	"planning.publish",
	"planning.delete",
	"planning.*",

	// Slot permissions
	"slot.read",
	"slot.write",
	"slot.*",

	// Leave permissions
	"leave.read",
	"leave.request",
	"leave.review",
	"leave.*",

	// Availability permissions
	"availability.read",
	"availability.write",
	"availability.*",

	// Hour summary permissions
	"summary.read",
	"summary.recompute",
	"summary.*",

	// Employee and task permissions
	"employee.read",
	"employee.write",
	"employee.*",
	"task.read",
	"task.write",
	"task.*",

	// Access management
	"access.manage",

	// Full access
	"*",
}

// IsValidPermission checks if a permission string is in the known list.
// Allows wildcards and custom permissions not in the standard list.
func IsValidPermission(perm string) bool {
	if perm == "*" {
		return true
	}

	for _, p := range KnownPermissions {
		if p == perm {
			return true
		}
	}

	// Allow any permission that follows the pattern resource.action
	parts := strings.Split(perm, ".")
	return len(parts) >= 2
}

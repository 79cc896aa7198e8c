// Package resolver turns a user-supplied marketplace product URL into display
// metadata: canonical item identifier, title, description and one
// representative image.
//
// The pipeline is Normalizer -> IdentifierExtractor -> ordered Strategies ->
// Scorer, driven by Resolver. Strategies and the Scorer hold no state between
// calls; only the Resolver decides ordering and short-circuiting.
package resolver

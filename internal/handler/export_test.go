package handler

// Export for testing
type UserResponse = userResponse
type AuthResponseDTO = authResponse
type AuthStatusResponse = authStatusResponse
type DocumentResponse = documentResponse
type DocumentListResponse = documentListResponse
type VoteResponse = voteResponse
type AnnotationResponse = annotationResponse
type CommentResponse = commentResponse
type WalletResponse = walletResponse
type StatusResponse = statusResponse

var WriteServiceError = writeServiceError
var WriteError = writeError
var Itoa = itoa

package prompts

// CaptionInstruction is the single-sentence captioning instruction sent with
// every image. All pipelines share it so captions stay comparable across
// datasets and model-output folders.
const CaptionInstruction = `Describe this image briefly, including the subject(s) and visual details. Use one clear sentence.`

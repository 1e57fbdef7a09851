package sqlinline

const QInsertQuiz = `--sql b4bc9d58-d7d4-41c5-9e56-7e93f417a20e
insert into quizzes(video_id, course_id, title, description, passing_score, is_active)
values ($1, $2, $3, $4, $5, true)
returning id;
`

const QInsertQuizQuestion = `--sql 2abb5004-4088-4815-b935-b47270ef8f5a
insert into quiz_questions(quiz_id, question_text, question_type, order_index)
values ($1, $2, $3, $4)
returning id;
`

const QInsertQuizOption = `--sql b1956687-8884-4025-9f09-ca5ca1cd09a5
insert into quiz_options(question_id, option_text, is_correct, order_index)
values ($1, $2, $3, $4);
`
